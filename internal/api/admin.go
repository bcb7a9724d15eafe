package api

import (
	"context"
	"fmt"
	"net/http"
)

// ListUsers fetches every account with server-side per-user aggregates.
func (c *Client) ListUsers(ctx context.Context) ([]AdminUser, error) {
	var users []AdminUser
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/users", nil, &users, true); err != nil {
		return nil, err
	}
	return users, nil
}

// ListAllFiles fetches the file collection across all owners.
func (c *Client) ListAllFiles(ctx context.Context) ([]AdminFile, error) {
	var files []AdminFile
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/files", nil, &files, true); err != nil {
		return nil, err
	}
	return files, nil
}

// ListChats fetches the conversational log across all users.
func (c *Client) ListChats(ctx context.Context) ([]AdminChat, error) {
	var chats []AdminChat
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/chats", nil, &chats, true); err != nil {
		return nil, err
	}
	return chats, nil
}

// ListAuditLogs fetches the administrative audit trail.
func (c *Client) ListAuditLogs(ctx context.Context) ([]AuditLogEntry, error) {
	var logs []AuditLogEntry
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/audit-logs", nil, &logs, true); err != nil {
		return nil, err
	}
	return logs, nil
}

// UserActionName is the path suffix of a mutating per-user admin endpoint.
type UserActionName string

const (
	UserVerify        UserActionName = "verify"
	UserSuspend       UserActionName = "suspend"
	UserUnsuspend     UserActionName = "unsuspend"
	UserEnableUpload  UserActionName = "enable-upload"
	UserDisableUpload UserActionName = "disable-upload"
)

// UserAction issues one of the POST user mutations and returns the backend's
// confirmation message.
func (c *Client) UserAction(ctx context.Context, userID int, action UserActionName) (string, error) {
	var resp MessageResponse
	path := fmt.Sprintf("/api/admin/users/%d/%s", userID, action)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// DeleteUser removes an account with its files and chat history.
func (c *Client) DeleteUser(ctx context.Context, userID int) (string, error) {
	var resp MessageResponse
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", userID), nil, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// DeleteAnyFile removes a file regardless of owner.
func (c *Client) DeleteAnyFile(ctx context.Context, fileID int) (string, error) {
	var resp MessageResponse
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/files/%d", fileID), nil, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, nil
}
