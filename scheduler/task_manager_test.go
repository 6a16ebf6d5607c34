package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lasertrack/models"
)

func acceptedPrice() *models.PriceData {
	return &models.PriceData{
		Price:      decimal.NewFromInt(2499),
		Currency:   "USD",
		Method:     "css-class-match",
		Status:     "ACCEPTED",
		Confidence: 1.0,
	}
}

func TestSubmitTaskCompletes(t *testing.T) {
	tm := NewTaskManager(func(productID int) (*models.PriceData, error) {
		return acceptedPrice(), nil
	}, 2)
	defer tm.Stop()

	task := tm.SubmitTask(42)
	assert.Equal(t, 42, task.ProductID)

	require.Eventually(t, task.IsCompleted, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	require.NotNil(t, task.Result)
	assert.Equal(t, "ACCEPTED", task.Result.Status)
	assert.Equal(t, 100, task.Progress)
}

func TestSubmitTaskFailure(t *testing.T) {
	tm := NewTaskManager(func(productID int) (*models.PriceData, error) {
		return nil, fmt.Errorf("no price found")
	}, 2)
	defer tm.Stop()

	task := tm.SubmitTask(7)

	require.Eventually(t, task.IsCompleted, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.TaskStatusFailed, task.Status)
	assert.Contains(t, task.Error, "no price found")
	assert.Nil(t, task.Result)
}

func TestGetTask(t *testing.T) {
	tm := NewTaskManager(func(productID int) (*models.PriceData, error) {
		return acceptedPrice(), nil
	}, 1)
	defer tm.Stop()

	task := tm.SubmitTask(1)

	got, exists := tm.GetTask(task.ID)
	require.True(t, exists)
	assert.Equal(t, task.ID, got.ID)

	_, exists = tm.GetTask("no-such-task")
	assert.False(t, exists)
}

func TestCleanupOldTasks(t *testing.T) {
	tm := NewTaskManager(func(productID int) (*models.PriceData, error) {
		return acceptedPrice(), nil
	}, 1)
	defer tm.Stop()

	task := tm.SubmitTask(3)
	require.Eventually(t, task.IsCompleted, 5*time.Second, 10*time.Millisecond)

	tm.CleanupOldTasks(0)

	_, exists := tm.GetTask(task.ID)
	assert.False(t, exists, "completed tasks past the age limit are removed")
}

func TestGetStats(t *testing.T) {
	tm := NewTaskManager(func(productID int) (*models.PriceData, error) {
		return acceptedPrice(), nil
	}, 3)
	defer tm.Stop()

	stats := tm.GetStats()
	assert.Equal(t, 3, stats["max_workers"])
	assert.Contains(t, stats, "total_tasks")
	assert.Contains(t, stats, "tasks_by_status")
}
