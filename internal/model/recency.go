// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// recency.go - Recency buckets for the sidebar grouping.
package model

import "time"

// =============================================================================
// RECENCY BUCKETS
// =============================================================================

// Bucket groups conversations in the sidebar by how recently they were
// created, relative to "now" at render time.
type Bucket int

const (
	BucketToday Bucket = iota
	BucketWeek
	BucketMonth
	BucketOlder
)

// Label returns the sidebar heading for the bucket.
func (b Bucket) Label() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketWeek:
		return "Previous 7 Days"
	case BucketMonth:
		return "Previous 30 Days"
	default:
		return "Older"
	}
}

// BucketFor classifies a creation time against the given reference time.
// "Today" means the same calendar date as now, not the last 24 hours.
func BucketFor(createdAt, now time.Time) Bucket {
	y1, m1, d1 := createdAt.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return BucketToday
	}

	today := time.Date(y2, m2, d2, 0, 0, 0, 0, now.Location())
	switch {
	case !createdAt.Before(today.AddDate(0, 0, -7)):
		return BucketWeek
	case !createdAt.Before(today.AddDate(0, 0, -30)):
		return BucketMonth
	default:
		return BucketOlder
	}
}

// GroupByBucket partitions conversations into recency buckets, preserving
// the input ordering within each bucket.
func GroupByBucket(convs []*Conversation, now time.Time) map[Bucket][]*Conversation {
	groups := make(map[Bucket][]*Conversation)
	for _, c := range convs {
		b := BucketFor(c.CreatedAt, now)
		groups[b] = append(groups[b], c)
	}
	return groups
}
