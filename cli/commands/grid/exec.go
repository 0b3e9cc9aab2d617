package grid

import (
	"fmt"

	"github.com/powergrid/powergrid-der/server"
	"github.com/powergrid/powergrid-der/x/types"
)

func CreateEvent(sender, eventType, durationMinutes, rate, targetKW, severity string) {
	s := NewService(sender)
	id, err := s.Client.CreateGridEvent(server.CreateEventMsg{
		EventType:         types.GridEventType(eventType),
		DurationMinutes:   parseUint("duration", durationMinutes),
		Rate:              parseAmount(rate),
		TargetReductionKW: parseUint("target", targetKW),
		Severity:          uint8(parseUint("severity", severity)),
	})
	if err != nil {
		panic(err)
	}
	fmt.Printf("event id: %d\n", id)
}

func Participate(sender, eventID, committedWh string) {
	s := NewService(sender)
	if err := s.Client.ParticipateInEvent(parseUint("event id", eventID), parseUint("committed wh", committedWh)); err != nil {
		panic(err)
	}
	fmt.Printf("committed %s Wh to event %s\n", committedWh, eventID)
}

func Verify(sender, eventID, account, actualWh string) {
	s := NewService(sender)
	if err := s.Client.VerifyParticipation(parseUint("event id", eventID), parseAddr(account), parseUint("actual wh", actualWh)); err != nil {
		panic(err)
	}
	fmt.Printf("verified %s for event %s\n", account, eventID)
}

func Distribute(sender, eventID, account, actualWh string) {
	s := NewService(sender)
	if err := s.Client.VerifyAndDistributeRewards(parseUint("event id", eventID), parseAddr(account), parseUint("actual wh", actualWh)); err != nil {
		panic(err)
	}
	fmt.Printf("rewards distributed to %s for event %s\n", account, eventID)
}

func Complete(sender, eventID string) {
	s := NewService(sender)
	if err := s.Client.CompleteGridEvent(parseUint("event id", eventID)); err != nil {
		panic(err)
	}
	fmt.Printf("event %s completed\n", eventID)
}

func Cancel(sender, eventID, reason string) {
	s := NewService(sender)
	if err := s.Client.CancelGridEvent(parseUint("event id", eventID), reason); err != nil {
		panic(err)
	}
	fmt.Printf("event %s cancelled\n", eventID)
}

func SetPaused(sender string, paused bool) {
	s := NewService(sender)
	if err := s.Client.SetGridPaused(paused); err != nil {
		panic(err)
	}
	fmt.Printf("grid service paused: %t\n", paused)
}
