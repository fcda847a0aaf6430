package schedulefile

import "testing"

func TestParse_ValidDocument(t *testing.T) {
	raw := []byte(`{
		"requires_version": "1.0.0",
		"slot_duration_nut": 100,
		"slots": [
			{"node_id": 1, "data_id": 0},
			{"node_id": 10, "data_id": 5}
		]
	}`)

	sched, err := parse(raw)
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}

	if sched.SlotDuration != 100 {
		t.Fatalf("SlotDuration = %d, want 100", sched.SlotDuration)
	}

	if len(sched.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(sched.Entries))
	}

	if sched.Entries[1].NodeID != 10 || sched.Entries[1].DataID != 5 {
		t.Fatalf("Entries[1] = %+v, want {NodeID:10 DataID:5}", sched.Entries[1])
	}
}

func TestParse_RejectsFutureVersion(t *testing.T) {
	raw := []byte(`{"requires_version": "9.0.0", "slot_duration_nut": 100, "slots": []}`)

	if _, err := parse(raw); err == nil {
		t.Fatal("parse() with a future requires_version: want error, got nil")
	}
}

func TestParse_RejectsZeroSlotDuration(t *testing.T) {
	raw := []byte(`{"slot_duration_nut": 0, "slots": []}`)

	if _, err := parse(raw); err == nil {
		t.Fatal("parse() with slot_duration_nut=0: want error, got nil")
	}
}

func TestParse_RejectsMalformedJSON(t *testing.T) {
	if _, err := parse([]byte(`not json`)); err == nil {
		t.Fatal("parse() with malformed JSON: want error, got nil")
	}
}
