// Package model defines the data models for the duel bot.
package model

import "time"

// FolderAlias maps a lookup name onto an image folder on disk. Every
// folder carries at least its identity alias (folder name → itself);
// further aliases are added by admins.
type FolderAlias struct {
	ID         string    `db:"id"` // sha256 of "folder-alias"
	FolderName string    `db:"folder_name"`
	ExtraName  string    `db:"extra_name"`
	CreatedAt  time.Time `db:"created_at"`
}
