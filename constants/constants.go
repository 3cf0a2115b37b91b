package constants

import "os"

func GetSongDBPath() string {
	path := os.Getenv("BMSDEX_SONGDB")
	if path != "" {
		return path
	}
	return "./songdata.db"
}

// GetChartRoot is empty when unset; commands that walk charts require it.
func GetChartRoot() string {
	return os.Getenv("BMSDEX_CHART_ROOT")
}

func GetDynamoEndpoint() string {
	endpoint := os.Getenv("BMSDEX_DYNAMO_ENDPOINT")
	if endpoint != "" {
		return endpoint
	}
	return "http://localhost:8000"
}

func GetServeAddr() string {
	addr := os.Getenv("BMSDEX_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

const DynamoTable = "bmsdex-songs"

const DynamoRegion = "localhost"

// Hold lengths, in ms, still read as a tap.
const (
	KeyThresholdMS     = 100
	ScratchThresholdMS = 400
)

const DefaultWorkers = 4

// ChartExtensions are the file suffixes indexed as charts.
var ChartExtensions = []string{".bms", ".bme", ".bml"}

// MaxUploadSize bounds request bodies of the HTTP server.
const MaxUploadSize = 8 * 1024 * 1024

// MaxReplaySize bounds a replay file once decompressed.
const MaxReplaySize = 64 * 1024 * 1024
