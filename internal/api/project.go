// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "context"

// =============================================================================
// PROJECT FILE WORKSPACE
// =============================================================================

// The coding-agent workspace lives on the backend; these are opaque REST
// calls over its /project/* endpoints.

// UploadFile uploads one file into the backend workspace.
func (c *Client) UploadFile(ctx context.Context, path, content string) error {
	var result StatusResponse
	return c.postJSON(ctx, "/project/files/upload", FileUploadRequest{Path: path, Content: content}, &result)
}

// UploadFolder uploads a set of files in one request.
func (c *Client) UploadFolder(ctx context.Context, files []FileUploadRequest) error {
	var result StatusResponse
	return c.postJSON(ctx, "/project/files/upload-folder", files, &result)
}

// ReadProjectFile reads one file from the backend workspace.
func (c *Client) ReadProjectFile(ctx context.Context, path string) (string, error) {
	var result FileReadResponse
	if err := c.postJSON(ctx, "/project/files/read", FileReadRequest{Path: path}, &result); err != nil {
		return "", err
	}
	return result.Content, nil
}

// WriteProjectFile writes one file in the backend workspace.
func (c *Client) WriteProjectFile(ctx context.Context, path, content string) error {
	var result StatusResponse
	return c.postJSON(ctx, "/project/files/write", FileWriteRequest{Path: path, Content: content}, &result)
}

// DeleteProjectFile deletes one file from the backend workspace.
func (c *Client) DeleteProjectFile(ctx context.Context, path string) error {
	var result StatusResponse
	return c.postJSON(ctx, "/project/files/delete", FileDeleteRequest{Path: path}, &result)
}

// RenameProjectFile renames a file in the backend workspace.
func (c *Client) RenameProjectFile(ctx context.Context, oldPath, newPath string) error {
	var result StatusResponse
	return c.postJSON(ctx, "/project/files/rename", FileRenameRequest{OldPath: oldPath, NewPath: newPath}, &result)
}

// ProjectIndex lists the files currently indexed in the workspace.
func (c *Client) ProjectIndex(ctx context.Context) ([]string, error) {
	var result ProjectIndexResponse
	if err := c.postJSON(ctx, "/project/index", struct{}{}, &result); err != nil {
		return nil, err
	}
	return result.Files, nil
}

// Reindex asks the backend to rebuild the workspace index.
func (c *Client) Reindex(ctx context.Context) error {
	var result StatusResponse
	return c.postJSON(ctx, "/project/reindex", struct{}{}, &result)
}
