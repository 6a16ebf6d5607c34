package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRetryBackoffGrows(t *testing.T) {
	p := &TrackedProduct{}

	var last time.Duration
	for count := 0; count <= 5; count++ {
		p.RetryCount = count
		delay := p.GetRetryDelay()
		assert.Greater(t, delay, last, "delay at retry %d should exceed the previous one", count)
		last = delay
	}

	assert.Equal(t, 24*time.Hour, last)
}

func TestShouldRetry(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	p := &TrackedProduct{LastFailedAt: &past, RetryCount: 2, NextRetryAt: &past}
	assert.True(t, p.ShouldRetry())

	p.NextRetryAt = &future
	assert.False(t, p.ShouldRetry(), "not due yet")

	p.NextRetryAt = &past
	p.RetryCount = 5
	assert.False(t, p.ShouldRetry(), "retry budget exhausted")

	p.RetryCount = 0
	p.LastFailedAt = nil
	assert.False(t, p.ShouldRetry(), "never failed, nothing to retry")
}

func TestPreviousPrice(t *testing.T) {
	p := &TrackedProduct{}
	assert.Nil(t, p.PreviousPrice())

	p.CurrentPrice = decimal.NewNullDecimal(decimal.NewFromFloat(2499.99))
	prev := p.PreviousPrice()
	assert.NotNil(t, prev)
	assert.True(t, prev.Equal(decimal.NewFromFloat(2499.99)))
}

func TestPriceDataAccepted(t *testing.T) {
	cases := map[string]bool{
		"ACCEPTED":     true,
		"CORRECTED":    true,
		"REJECTED":     false,
		"NEEDS_REVIEW": false,
	}

	for status, want := range cases {
		d := &PriceData{Status: status}
		assert.Equal(t, want, d.Accepted(), "status %s", status)
	}
}

func TestHistoryEntryNeedsAttention(t *testing.T) {
	e := &PriceHistoryEntry{Status: "ACCEPTED", Success: true}
	assert.False(t, e.NeedsAttention())

	e.Status = "NEEDS_REVIEW"
	assert.True(t, e.NeedsAttention())

	e.Status = "ACCEPTED"
	e.Success = false
	assert.True(t, e.NeedsAttention(), "failed checks surface in triage")
}
