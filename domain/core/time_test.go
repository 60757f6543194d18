package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampJSONRoundTrip(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC))

	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2024-03-09T14:30:00Z"` {
		t.Errorf("Unexpected encoding: %s", data)
	}

	var back Timestamp
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Time().Equal(ts.Time()) {
		t.Errorf("Round trip changed time: %v vs %v", back, ts)
	}

	if err := json.Unmarshal([]byte(`"yesterday"`), &back); err == nil {
		t.Error("Expected an error for a malformed timestamp")
	}
}
