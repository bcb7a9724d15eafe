package api

import "time"

// FileRecord is a single entry in the server-truth file collection. The
// client never mutates IsIndexed; it only observes the false→true
// transition driven by backend ingestion.
type FileRecord struct {
	ID          int       `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	UploadDate  time.Time `json:"upload_date"`
	IsIndexed   bool      `json:"is_indexed"`
	ContentType string    `json:"content_type"`
	OwnerEmail  string    `json:"owner_email,omitempty"`
	ShareToken  string    `json:"share_token,omitempty"`
}

// TokenResponse carries the bearer credential issued by the login endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ShareInfo is returned when a public share link is created.
type ShareInfo struct {
	ShareURL   string `json:"share_url"`
	ShareToken string `json:"share_token"`
}

// QueryRequest scopes a conversational query. FileIDs is omitted entirely
// when empty: an empty selection means "search all documents", never
// "search nothing".
type QueryRequest struct {
	Query   string `json:"query"`
	FileIDs []int  `json:"file_ids,omitempty"`
}

// Source is a citation attached to an answer.
type Source struct {
	ChunkIndex int `json:"chunk_index"`
}

// QueryResponse is the answer payload for a conversational query.
type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// AdminUser is the privilege-escalated user view, enriched server-side with
// per-user aggregates. The three booleans are independent flags, not an
// enum.
type AdminUser struct {
	ID            int        `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name,omitempty"`
	IsActive      bool       `json:"is_active"`
	IsVerified    bool       `json:"is_verified"`
	CanUpload     bool       `json:"can_upload"`
	FilesCount    int        `json:"files_count"`
	StorageUsed   int64      `json:"storage_used"`
	QueriesTotal  int        `json:"queries_total"`
	Queries24h    int        `json:"queries_24h"`
	FailedQueries int        `json:"failed_queries"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// AdminFile is the admin-wide file view, keyed back to its owner by the
// denormalized owner email.
type AdminFile struct {
	ID          int       `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	UploadDate  time.Time `json:"upload_date"`
	ContentType string    `json:"content_type,omitempty"`
	OwnerEmail  string    `json:"owner_email"`
}

// AdminChat is one conversational log entry across all users.
type AdminChat struct {
	ID        int       `json:"id"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	UserEmail string    `json:"user_email"`
}

// AuditLogEntry records an administrative action.
type AuditLogEntry struct {
	ID         int       `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ActorEmail string    `json:"actor_email"`
	Action     string    `json:"action"`
	TargetID   *int      `json:"target_id,omitempty"`
	TargetType string    `json:"target_type,omitempty"`
	Metadata   string    `json:"metadata_json,omitempty"`
}

// MessageResponse is the generic `{message}` body returned by mutating
// admin endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}
