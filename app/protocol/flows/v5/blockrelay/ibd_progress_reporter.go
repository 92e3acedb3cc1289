package blockrelay

type ibdProgressReporter struct {
	lowBlueScore                uint64
	highBlueScore               uint64
	objectName                  string
	totalBlueScoreDifference    uint64
	lastReportedProgressPercent int
	processed                   int
}

func newIBDProgressReporter(lowBlueScore uint64, highBlueScore uint64, objectName string) *ibdProgressReporter {
	if highBlueScore <= lowBlueScore {
		// Avoid a zero or negative diff
		highBlueScore = lowBlueScore + 1
	}
	return &ibdProgressReporter{
		lowBlueScore:                lowBlueScore,
		highBlueScore:               highBlueScore,
		objectName:                  objectName,
		totalBlueScoreDifference:    highBlueScore - lowBlueScore,
		lastReportedProgressPercent: 0,
		processed:                   0,
	}
}

func (ipr *ibdProgressReporter) reportProgress(processedDelta int, highestProcessedBlueScore uint64) {
	ipr.processed += processedDelta

	// Blue scores of headers that are not on the selected chain may be lower
	// than the low blue score
	if highestProcessedBlueScore < ipr.lowBlueScore {
		return
	}

	relativeBlueScore := highestProcessedBlueScore - ipr.lowBlueScore
	progressPercent := int((float64(relativeBlueScore) / float64(ipr.totalBlueScoreDifference)) * 100)
	if progressPercent > ipr.lastReportedProgressPercent {
		log.Infof("IBD: Processed %d %s (%d%%)", ipr.processed, ipr.objectName, progressPercent)
		ipr.lastReportedProgressPercent = progressPercent
	}
}
