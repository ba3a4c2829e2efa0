package config

// Default settings for the bot runtime and text rendering.
const (
	DefaultPollingIntervalSecs = 3
	DefaultExcelThreshold      = 15
	DefaultHTTPTimeoutSeconds  = 30

	DefaultSenderColumnWidth   = 18
	DefaultQuestionColumnWidth = 32
	DefaultCountColumnWidth    = 4
)
