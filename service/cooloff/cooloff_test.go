package cooloff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/option"
	"github.com/to404hanga/submission_controller/pkg/pointer"
)

func TestNextAllowedSubmissionTime(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	withCooloff := &entity.Assignment{CooloffPeriod: pointer.ToPtr(30)}
	structureFailure := []entity.SubmissionReport{
		{Indicator: entity.IndicatorProjectStructure, Value: entity.ReportNOK},
	}
	compilationFailure := []entity.SubmissionReport{
		{Indicator: entity.IndicatorProjectStructure, Value: entity.ReportOK},
		{Indicator: entity.IndicatorCompilation, Value: entity.ReportNOK},
	}
	passing := []entity.SubmissionReport{
		{Indicator: entity.IndicatorProjectStructure, Value: entity.ReportOK},
		{Indicator: entity.IndicatorCompilation, Value: entity.ReportOK},
		{Indicator: entity.IndicatorTeacherUnitTests, Value: entity.ReportNOK},
	}

	testCases := []struct {
		name       string
		assignment *entity.Assignment
		reports    []entity.SubmissionReport
		noLast     bool
		now        time.Time
		want       option.Option[time.Time]
	}{
		{
			name:       "no cooloff configured",
			assignment: &entity.Assignment{},
			now:        t0.Add(time.Minute),
			want:       option.None[time.Time](),
		},
		{
			name:       "no previous submission",
			assignment: withCooloff,
			noLast:     true,
			now:        t0,
			want:       option.None[time.Time](),
		},
		{
			name:       "structure failure quick retry elapsed",
			assignment: withCooloff,
			reports:    structureFailure,
			now:        t0.Add(10 * time.Minute),
			want:       option.None[time.Time](),
		},
		{
			name:       "structure failure quick retry pending",
			assignment: withCooloff,
			reports:    structureFailure,
			now:        t0.Add(3 * time.Minute),
			want:       option.Some(t0.Add(5 * time.Minute)),
		},
		{
			name:       "compilation failure quick retry pending",
			assignment: withCooloff,
			reports:    compilationFailure,
			now:        t0.Add(4 * time.Minute),
			want:       option.Some(t0.Add(5 * time.Minute)),
		},
		{
			name:       "test failures use full cooloff",
			assignment: withCooloff,
			reports:    passing,
			now:        t0.Add(10 * time.Minute),
			want:       option.Some(t0.Add(30 * time.Minute)),
		},
		{
			name:       "full cooloff elapsed",
			assignment: withCooloff,
			reports:    passing,
			now:        t0.Add(30 * time.Minute),
			want:       option.None[time.Time](),
		},
		{
			name:       "quick retry longer than cooloff uses cooloff",
			assignment: &entity.Assignment{CooloffPeriod: pointer.ToPtr(2)},
			reports:    structureFailure,
			now:        t0.Add(time.Minute),
			want:       option.Some(t0.Add(2 * time.Minute)),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			last := option.Some(LastSubmission{SubmissionDate: t0, Reports: tc.reports})
			if tc.noLast {
				last = option.None[LastSubmission]()
			}
			got := NextAllowedSubmissionTime(last, tc.assignment, tc.now, DefaultQuickRetry)
			assert.Equal(t, tc.want, got)
		})
	}
}
