package recording

// ShouldStart reports whether a session should be started automatically:
// the stage is colder than startTemp, nothing is recording and
// auto-record is on.
func ShouldStart(stageTemp, startTemp float64, recording, autoRecord bool) bool {
	return autoRecord && !recording && stageTemp < startTemp
}

// ShouldStop reports whether an auto-recorded session should end: the
// stage is warmer than stopTemp or the temperature bridge is unavailable.
func ShouldStop(stageTemp, stopTemp float64, unavailable bool) bool {
	return unavailable || stageTemp > stopTemp
}
