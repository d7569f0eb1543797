package walkforward

import (
	"fmt"
	"time"

	"github.com/newthinker/prism/internal/core"
)

// CalculateFolds computes the ordered train/test periods for a study.
// Rolling windows start at totalStart and advance by stepDays; the last
// fold may be truncated to totalEnd when a full test window no longer
// fits but out-of-sample data remains.
//
// Returns core.ErrInsufficientData when the range yields no folds at
// all. A fold count below minFolds is a quality signal, not an abort
// condition: the folds are returned together with a non-empty advisory
// warning, and the caller decides how loudly to surface it.
//
// Deterministic, no side effects, no I/O.
func CalculateFolds(totalStart, totalEnd time.Time, trainDays, testDays, stepDays, minFolds int) ([]FoldPeriod, string, error) {
	if trainDays <= 0 || testDays <= 0 || stepDays <= 0 {
		return nil, "", core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("window sizes must be positive: train=%d test=%d step=%d", trainDays, testDays, stepDays))
	}
	if !totalEnd.After(totalStart) {
		return nil, "", core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("end %s not after start %s", totalEnd.Format("2006-01-02"), totalStart.Format("2006-01-02")))
	}

	var folds []FoldPeriod
	trainStart := totalStart
	for {
		trainEnd := trainStart.AddDate(0, 0, trainDays)
		testStart := trainEnd
		testEnd := testStart.AddDate(0, 0, testDays)

		if testEnd.After(totalEnd) {
			// One final truncated fold when out-of-sample data remains
			// past a complete train window.
			if testStart.Before(totalEnd) && !trainEnd.After(totalEnd) {
				folds = append(folds, FoldPeriod{
					Index:      len(folds),
					TrainStart: trainStart,
					TrainEnd:   trainEnd,
					TestStart:  testStart,
					TestEnd:    totalEnd,
				})
			}
			break
		}

		folds = append(folds, FoldPeriod{
			Index:      len(folds),
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  testStart,
			TestEnd:    testEnd,
		})
		trainStart = trainStart.AddDate(0, 0, stepDays)
	}

	if len(folds) == 0 {
		return nil, "", core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("%d days of data cannot hold a %dd train + %dd test window",
				int(totalEnd.Sub(totalStart).Hours()/24), trainDays, testDays))
	}

	var warning string
	if minFolds > 0 && len(folds) < minFolds {
		warning = fmt.Sprintf("only %d folds computed, below the configured minimum of %d; results may not be statistically meaningful", len(folds), minFolds)
	}
	return folds, warning, nil
}
