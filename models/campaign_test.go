package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() CampaignInput {
	return CampaignInput{
		Title:         "Winter blankets for the elderly",
		Description:   "Blankets for 40 elderly villagers before winter",
		Category:      "elderly",
		TargetAmount:  1000,
		EndDate:       "2026-12-31",
		Village:       "Rampur",
		District:      "Sitapur",
		State:         "UP",
		Beneficiaries: 40,
	}
}

func TestCampaignInputValidate(t *testing.T) {
	in := validInput()
	assert.Empty(t, in.Validate())

	tests := []struct {
		name   string
		mutate func(*CampaignInput)
		want   string
	}{
		{"missing title", func(in *CampaignInput) { in.Title = "" }, "title is required"},
		{"missing description", func(in *CampaignInput) { in.Description = "" }, "description is required"},
		{"bad category", func(in *CampaignInput) { in.Category = "pets" }, "category must be one of"},
		{"zero target", func(in *CampaignInput) { in.TargetAmount = 0 }, "target_amount must be at least 1"},
		{"negative target", func(in *CampaignInput) { in.TargetAmount = -50 }, "target_amount must be at least 1"},
		{"missing end date", func(in *CampaignInput) { in.EndDate = "" }, "end_date is required"},
		{"bad end date", func(in *CampaignInput) { in.EndDate = "next tuesday" }, "end_date format is invalid"},
		{"zero beneficiaries", func(in *CampaignInput) { in.Beneficiaries = 0 }, "beneficiaries must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			errs := in.Validate()
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestCampaignInputValidateCollectsAllErrors(t *testing.T) {
	in := CampaignInput{}
	errs := in.Validate()
	assert.Len(t, errs, 6)
}

func TestProgressClamped(t *testing.T) {
	c := Campaign{TargetAmount: 1000}

	c.RaisedAmount = 0
	assert.Equal(t, 0, c.Progress())

	c.RaisedAmount = 600
	assert.Equal(t, 60, c.Progress())

	c.RaisedAmount = 1000
	assert.Equal(t, 100, c.Progress())

	// over-funded never exceeds 100
	c.RaisedAmount = 1100
	assert.Equal(t, 100, c.Progress())

	// rounding, not truncation
	c.RaisedAmount = 605
	assert.Equal(t, 61, c.Progress())
}

func TestProgressZeroTarget(t *testing.T) {
	c := Campaign{TargetAmount: 0, RaisedAmount: 500}
	assert.Equal(t, 0, c.Progress())
}

func TestRemainingDaysNeverNegative(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	c := Campaign{EndDate: now.Add(-30 * 24 * time.Hour)}
	assert.Equal(t, 0, c.RemainingDays(now))

	c.EndDate = now
	assert.Equal(t, 0, c.RemainingDays(now))

	c.EndDate = now.Add(1 * time.Hour)
	assert.Equal(t, 1, c.RemainingDays(now), "partial day rounds up")

	c.EndDate = now.Add(10 * 24 * time.Hour)
	assert.Equal(t, 10, c.RemainingDays(now))
}

func TestFillDerived(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	c := Campaign{
		TargetAmount: 1000,
		RaisedAmount: 1100,
		EndDate:      now.Add(48 * time.Hour),
	}
	c.FillDerived(now)
	assert.Equal(t, 100, c.ProgressPercentage)
	assert.Equal(t, 2, c.DaysRemaining)
}

func TestValidCategoryAndStatus(t *testing.T) {
	for _, cat := range CampaignCategories {
		assert.True(t, ValidCategory(cat))
	}
	assert.False(t, ValidCategory(""))
	assert.False(t, ValidCategory("Elderly"))

	for _, s := range CampaignStatuses {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("archived"))
}

func TestParseDate(t *testing.T) {
	for _, v := range []string{
		"2026-12-31",
		"2026-12-31 15:04",
		"2026-12-31 15:04:05",
		"2026-12-31T15:04:05Z",
	} {
		_, err := ParseDate(v)
		assert.NoError(t, err, v)
	}

	_, err := ParseDate("31/12/2026")
	assert.Error(t, err)
}
