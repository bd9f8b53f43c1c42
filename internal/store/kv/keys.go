package kv

import (
	"fmt"
	"math"
	"time"
)

// Key prefixes. Secondary indexes live under prefix+"idx:"+name+":" and hold
// the primary ID (or nothing, for membership-only indexes).
const (
	userPrefix      = "user:"
	workspacePrefix = "workspace:"
	listPrefix      = "list:"
	cardPrefix      = "card:"
	activityPrefix  = "activity:"
	idxSegment      = "idx:"
)

func userKey(id string) string      { return userPrefix + id }
func workspaceKey(id string) string { return workspacePrefix + id }
func listKey(id string) string      { return listPrefix + id }
func cardKey(id string) string      { return cardPrefix + id }

// indexKey constructs an index key from prefix, index name, and value.
//
//	indexKey("user:", "email", "ada@example.com") -> "user:idx:email:ada@example.com"
func indexKey(prefix, indexName, value string) string {
	return prefix + idxSegment + indexName + ":" + value
}

// memberIndexKey records that userID can see workspaceID.
func memberIndexKey(userID, workspaceID string) string {
	return indexKey(workspacePrefix, "member", userID+":"+workspaceID)
}

// memberIndexPrefix scans all workspaces for a user.
func memberIndexPrefix(userID string) string {
	return indexKey(workspacePrefix, "member", userID+":")
}

func publicIndexKey(workspaceID string) string {
	return indexKey(workspacePrefix, "public", workspaceID)
}

// activityKey sorts newest first within a workspace by inverting the timestamp.
func activityKey(workspaceID string, createdAt time.Time, id string) string {
	inverted := math.MaxInt64 - createdAt.UnixNano()
	return fmt.Sprintf("%s%s:%020d:%s", activityPrefix, workspaceID, inverted, id)
}

func activityWorkspacePrefix(workspaceID string) string {
	return activityPrefix + workspaceID + ":"
}
