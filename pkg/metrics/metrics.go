package metrics

/*
Labels and so on for metrics used in the GUI RPC client.
*/

const (
	LabelMethod  = "method"
	LabelSuccess = "success"

	// Labels for session metrics
	LabelAuthorized = "authorized"

	Namespace = "boinc"
	Subsystem = "gui_rpc"
)
