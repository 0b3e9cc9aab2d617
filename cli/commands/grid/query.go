package grid

import (
	"encoding/json"
	"fmt"
)

func Events() {
	s := NewQueryService()
	events, err := s.Client.GetActiveEvents()
	if err != nil {
		panic(err)
	}
	if len(events) == 0 {
		fmt.Println("no active events")
		return
	}
	for _, ev := range events {
		fmt.Printf("#%d %s severity=%d duration=%dm target=%dkW rate=%s\n",
			ev.ID, ev.EventType, ev.Severity, ev.DurationMinutes, ev.TargetReductionKW, ev.BaseCompensationRate.Dec())
	}
}

func Event(eventID string) {
	s := NewQueryService()
	ev, err := s.Client.GetEvent(parseUint("event id", eventID))
	if err != nil {
		panic(err)
	}
	out, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s\n", out)
}

func Participations(eventID string) {
	s := NewQueryService()
	parts, err := s.Client.GetParticipations(parseUint("event id", eventID))
	if err != nil {
		panic(err)
	}
	for _, p := range parts {
		reward := "0"
		if p.RewardMinted != nil {
			reward = p.RewardMinted.Dec()
		}
		fmt.Printf("%s state=%s committed=%dWh actual=%dWh reward=%s\n",
			p.Account.Hex(), p.State, p.CommittedWh, p.ActualWh, reward)
	}
}

func Totals() {
	s := NewQueryService()
	totals, err := s.Client.GetTotals()
	if err != nil {
		panic(err)
	}
	fmt.Printf("events:         %d\n", totals.Events)
	fmt.Printf("participations: %d\n", totals.Participations)
	fmt.Printf("energy:         %d Wh\n", totals.EnergyWh)
	fmt.Printf("rewards minted: %s\n", totals.RewardsMinted.Dec())
}
