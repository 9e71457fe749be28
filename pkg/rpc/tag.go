package rpc

// Tag is an element name in the GUI RPC vocabulary.
type Tag string

const (
	// Framing envelopes.
	RequestEnvelope Tag = "boinc_gui_rpc_request"
	ReplyEnvelope   Tag = "boinc_gui_rpc_reply"

	// Authentication.
	Auth1        Tag = "auth1"
	Nonce        Tag = "nonce"
	Auth2        Tag = "auth2"
	NonceHash    Tag = "nonce_hash"
	Authorized   Tag = "authorized"
	Unauthorized Tag = "unauthorized"

	// Reply classification.
	Success Tag = "success"
	Error   Tag = "error"

	// Status reads.
	ExchangeVersions Tag = "exchange_versions"
	ServerVersion    Tag = "server_version"
	Major            Tag = "major"
	Minor            Tag = "minor"
	Release          Tag = "release"
	GetHostInfo      Tag = "get_host_info"
	GetResults       Tag = "get_results"
	GetOldResults    Tag = "get_old_results"
	ActiveOnly       Tag = "active_only"
	GetProjectStatus Tag = "get_project_status"
	GetMessageCount  Tag = "get_message_count"
	GetMessages      Tag = "get_messages"
	GetNoticesPublic Tag = "get_notices_public"
	Seqno            Tag = "seqno"
	Translatable     Tag = "translatable"

	// Task control.
	AbortResult   Tag = "abort_result"
	SuspendResult Tag = "suspend_result"
	ResumeResult  Tag = "resume_result"
	ProjectURL    Tag = "project_url"
	Name          Tag = "name"
)

func (t Tag) String() string {
	return string(t)
}
