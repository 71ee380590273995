package models

import "testing"

func TestSlotsMergeIsOrderStable(t *testing.T) {
	s := &CallSession{History: []TurnMessage{
		SystemNote(SlotVaccineType, "flu shot"),
		{Role: RoleUser, Content: "actually make it covid"},
		SystemNote(SlotVaccineType, "covid booster"),
		SystemNote(SlotPatientName, "Jane Doe"),
	}}

	slots := s.Slots()
	if slots[SlotVaccineType] != "covid booster" {
		t.Fatalf("vaccine_type = %q, later entry must override earlier", slots[SlotVaccineType])
	}
	if slots[SlotPatientName] != "Jane Doe" {
		t.Fatalf("patient_name = %q", slots[SlotPatientName])
	}
}

func TestSlotsIgnoresSpokenMessages(t *testing.T) {
	s := &CallSession{History: []TurnMessage{
		{Role: RoleUser, Content: "flu shot"},
		{Role: RoleAssistant, Content: "Got it. May I have your full name, please?"},
	}}
	if len(s.Slots()) != 0 {
		t.Fatal("user/assistant messages must not contribute slots")
	}
}

func TestSlotsSkipsMalformedAnnotations(t *testing.T) {
	s := &CallSession{History: []TurnMessage{
		{Role: RoleSystem, Content: "not json"},
		SystemNote(SlotDesiredDate, "next Monday"),
	}}
	slots := s.Slots()
	if len(slots) != 1 || slots[SlotDesiredDate] != "next Monday" {
		t.Fatalf("slots = %v", slots)
	}
}

func TestRewriteLastSlot(t *testing.T) {
	s := &CallSession{History: []TurnMessage{
		SystemNote(SlotVaccineType, "flu shot"),
		SystemNote(SlotPatientName, "Jane Doe"),
	}}

	key, ok := s.RewriteLastSlot("John Smith")
	if !ok || key != SlotPatientName {
		t.Fatalf("rewrote %q ok=%v, want most recent slot", key, ok)
	}
	slots := s.Slots()
	if slots[SlotPatientName] != "John Smith" {
		t.Fatalf("patient_name = %q", slots[SlotPatientName])
	}
	if slots[SlotVaccineType] != "flu shot" {
		t.Fatal("earlier slots must be untouched")
	}
}

func TestRewriteLastSlotWithoutSlots(t *testing.T) {
	s := &CallSession{History: []TurnMessage{
		{Role: RoleUser, Content: "hello"},
	}}
	if _, ok := s.RewriteLastSlot("anything"); ok {
		t.Fatal("nothing to rewrite")
	}
}
