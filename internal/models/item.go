package models

import "time"

// Item is an entry embedded in a list's item map.
type Item struct {
	ID        string `json:"id" bson:"id"`
	Name      string `json:"name" bson:"name"`
	AddedBy   string `json:"addedBy" bson:"addedBy"`
	AddedAt   string `json:"addedAt" bson:"addedAt"`
	Pending   bool   `json:"pending" bson:"pending"`
	Important bool   `json:"important" bson:"important"`
}

// timestampLayout matches ISO-8601 UTC with millisecond precision
// ("2024-05-01T10:00:00.000Z").
const timestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t the way item timestamps are stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp parses a stored timestamp. Unparsable or empty values map to
// the Unix epoch so they order before every real timestamp.
func ParseTimestamp(s string) time.Time {
	if s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

// AddedTime is the parsed AddedAt.
func (i Item) AddedTime() time.Time { return ParseTimestamp(i.AddedAt) }

// Fields renders the item as a document value for field-path writes.
func (i Item) Fields() map[string]interface{} {
	return map[string]interface{}{
		"id":        i.ID,
		"name":      i.Name,
		"addedBy":   i.AddedBy,
		"addedAt":   i.AddedAt,
		"pending":   i.Pending,
		"important": i.Important,
	}
}
