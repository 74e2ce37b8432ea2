package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"procurement/internal/model"
	"procurement/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceService_GenerateFormat(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	year := time.Now().Year()

	first, err := f.sequence.Generate(f.ctx(), program.ID.String())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ATLAS-%d-0001", year), first)

	second, err := f.sequence.Generate(f.ctx(), program.ID.String())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ATLAS-%d-0002", year), second)
}

func TestSequenceService_YearRollover(t *testing.T) {
	f := newFixture(t)
	year := time.Now().Year()

	// A program that last issued numbers the previous year restarts at 0001.
	program := &model.Program{
		Name:          "Horizon",
		Code:          "HRZN",
		IsActive:      true,
		PRCounter:     41,
		PRCounterYear: year - 1,
	}
	require.NoError(t, f.db.Create(program).Error)

	got, err := f.sequence.Generate(f.ctx(), program.ID.String())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("HRZN-%d-0001", year), got)

	// The rollover also rewrites the stored year.
	var reloaded model.Program
	require.NoError(t, f.db.First(&reloaded, "id = ?", program.ID).Error)
	assert.Equal(t, year, reloaded.PRCounterYear)
	assert.Equal(t, 1, reloaded.PRCounter)
}

func TestSequenceService_InactiveProgram(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Retired", "RETD")
	require.NoError(t, f.db.Model(program).Update("is_active", false).Error)

	_, err := f.sequence.Generate(f.ctx(), program.ID.String())
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	// Counter state must be untouched.
	var reloaded model.Program
	require.NoError(t, f.db.First(&reloaded, "id = ?", program.ID).Error)
	assert.Equal(t, 0, reloaded.PRCounter)
}

func TestSequenceService_InvalidID(t *testing.T) {
	f := newFixture(t)

	_, err := f.sequence.Generate(f.ctx(), "not-a-uuid")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = f.sequence.Preview(f.ctx(), "not-a-uuid")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestSequenceService_PreviewDoesNotConsume(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	year := time.Now().Year()

	want := fmt.Sprintf("ATLAS-%d-0001", year)
	for i := 0; i < 3; i++ {
		got, err := f.sequence.Preview(f.ctx(), program.ID.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Generate hands out exactly the previewed number.
	got, err := f.sequence.Generate(f.ctx(), program.ID.String())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSequenceService_ConcurrentGenerate(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	year := time.Now().Year()

	const n = 20
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.sequence.Generate(f.ctx(), program.ID.String())
			assert.NoError(t, err)
			results <- got
		}()
	}
	wg.Wait()
	close(results)

	// All numbers distinct, and exactly the contiguous block 0001..n.
	seen := make(map[string]bool, n)
	for got := range results {
		assert.False(t, seen[got], "duplicate PR number %s", got)
		seen[got] = true
	}
	for i := 1; i <= n; i++ {
		want := fmt.Sprintf("ATLAS-%d-%04d", year, i)
		assert.True(t, seen[want], "missing PR number %s", want)
	}
}
