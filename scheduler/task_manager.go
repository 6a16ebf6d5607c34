package scheduler

import (
	"log"
	"sync"
	"time"

	"lasertrack/models"
)

// CheckFunc runs a full price check for one product
type CheckFunc func(productID int) (*models.PriceData, error)

// TaskManager manages async price checking tasks
type TaskManager struct {
	tasks      map[string]*models.CheckTask
	taskQueue  chan *models.CheckTask
	workers    int
	maxWorkers int
	checkFunc  CheckFunc
	mutex      sync.RWMutex
	stopChan   chan bool
}

// NewTaskManager creates a new task manager
func NewTaskManager(checkFunc CheckFunc, maxWorkers int) *TaskManager {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	tm := &TaskManager{
		tasks:      make(map[string]*models.CheckTask),
		taskQueue:  make(chan *models.CheckTask, 100), // Buffer for 100 tasks
		maxWorkers: maxWorkers,
		checkFunc:  checkFunc,
		stopChan:   make(chan bool),
	}

	go tm.processTasks()
	log.Printf("🚀 Task manager started with %d max workers", maxWorkers)
	return tm
}

// SubmitTask submits a new price check task
func (tm *TaskManager) SubmitTask(productID int) *models.CheckTask {
	task := models.NewCheckTask(productID)

	tm.mutex.Lock()
	tm.tasks[task.ID] = task
	tm.mutex.Unlock()

	select {
	case tm.taskQueue <- task:
		log.Printf("📝 Task %s submitted for product %d", task.ID, productID)
	default:
		task.Fail("Task queue is full")
		log.Printf("❌ Failed to submit task %s - queue full", task.ID)
	}

	return task
}

// GetTask returns a task by ID
func (tm *TaskManager) GetTask(taskID string) (*models.CheckTask, bool) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	task, exists := tm.tasks[taskID]
	return task, exists
}

// GetActiveTasks returns all active tasks
func (tm *TaskManager) GetActiveTasks() []*models.CheckTask {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	var active []*models.CheckTask
	for _, task := range tm.tasks {
		if task.IsActive() {
			active = append(active, task)
		}
	}

	return active
}

// CleanupOldTasks removes completed tasks older than the given age
func (tm *TaskManager) CleanupOldTasks(maxAge time.Duration) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for taskID, task := range tm.tasks {
		if task.IsCompleted() && task.CreatedAt.Before(cutoff) {
			delete(tm.tasks, taskID)
			log.Printf("🧹 Cleaned up old task: %s", taskID)
		}
	}
}

// processTasks processes tasks from the queue
func (tm *TaskManager) processTasks() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case task := <-tm.taskQueue:
			tm.mutex.Lock()
			if tm.workers < tm.maxWorkers {
				tm.workers++
				tm.mutex.Unlock()
				go tm.worker(task)
			} else {
				tm.mutex.Unlock()
				// Re-queue the task if we're at max workers
				go func() {
					time.Sleep(1 * time.Second)
					select {
					case tm.taskQueue <- task:
						log.Printf("🔄 Re-queued task %s (max workers reached)", task.ID)
					default:
						task.Fail("System overloaded, unable to process task")
						log.Printf("❌ Failed to re-queue task %s", task.ID)
					}
				}()
			}

		case <-ticker.C:
			tm.CleanupOldTasks(1 * time.Hour) // Keep tasks for 1 hour

		case <-tm.stopChan:
			log.Println("🛑 Task manager stopped")
			return
		}
	}
}

// worker processes a single task
func (tm *TaskManager) worker(task *models.CheckTask) {
	defer func() {
		tm.mutex.Lock()
		tm.workers--
		tm.mutex.Unlock()
	}()

	log.Printf("👷 Worker started processing task %s for product %d", task.ID, task.ProductID)
	task.Start()

	task.Progress = 30
	task.Message = "Fetching product page..."

	priceData, err := tm.checkFunc(task.ProductID)
	if err != nil {
		task.Fail("Price check failed: " + err.Error())
		return
	}

	task.Complete(priceData)
	log.Printf("✅ Task %s completed in %v: %s", task.ID, task.Duration(), priceData.String())
}

// Stop stops the task manager
func (tm *TaskManager) Stop() {
	close(tm.stopChan)
	log.Println("🛑 Task manager stopping...")
}

// GetStats returns task manager statistics
func (tm *TaskManager) GetStats() map[string]interface{} {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	stats := map[string]interface{}{
		"total_tasks":    len(tm.tasks),
		"active_workers": tm.workers,
		"max_workers":    tm.maxWorkers,
		"queue_size":     len(tm.taskQueue),
	}

	statusCounts := make(map[string]int)
	for _, task := range tm.tasks {
		statusCounts[string(task.Status)]++
	}
	stats["tasks_by_status"] = statusCounts

	return stats
}
