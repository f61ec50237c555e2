package api

import "time"

// RecordStageAndStepInfo records details about each workflow stage and step.
func RecordStageAndStepInfo(stages []StageInfo, stageName StageName, stepName StepName, startTime time.Time, endTime time.Time) []StageInfo {
	// If the stage already exists, update its end time and duration and
	// append the new step.
	for stageKey, stageVal := range stages {
		if stageVal.Name == stageName {
			stages[stageKey].Duration = endTime.Sub(stages[stageKey].StartTime)
			stages[stageKey].Steps = append(stages[stageKey].Steps, StepInfo{
				Name:      stepName,
				StartTime: startTime,
				Duration:  endTime.Sub(startTime),
			})
			return stages
		}
	}

	// Otherwise add the stage along with its first step.
	return append(stages, StageInfo{
		Name:      stageName,
		StartTime: startTime,
		Duration:  endTime.Sub(startTime),
		Steps: []StepInfo{
			{
				Name:      stepName,
				StartTime: startTime,
				Duration:  endTime.Sub(startTime),
			},
		},
	})
}

// TimedStep runs fn and records its timing under the given stage and step.
func TimedStep(stages []StageInfo, stageName StageName, stepName StepName, fn func() error) ([]StageInfo, error) {
	startTime := time.Now()
	err := fn()
	return RecordStageAndStepInfo(stages, stageName, stepName, startTime, time.Now()), err
}
