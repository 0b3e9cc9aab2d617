package chaininfo

import (
	"fmt"
	"strconv"

	"github.com/powergrid/powergrid-der/cli/conf"
	"github.com/powergrid/powergrid-der/indexer"
	"github.com/powergrid/powergrid-der/logger"
)

// History commands read the devnet's sqlite index directly, so they work
// against the db file a `devnet serve` process keeps in sync.

func openIndex() *indexer.Indexer {
	conf.InitConfig()
	ix, err := indexer.Open(conf.C.Devnet.DB, logger.NewMockLogger())
	if err != nil {
		panic(err)
	}
	return ix
}

func HistoryTransfers(limit string) {
	n := 20
	if limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil {
			panic(fmt.Sprintf("limit must be an integer. Error: %s", err))
		}
		n = v
	}
	ix := openIndex()
	defer ix.Close()
	rows, err := ix.Transfers(n)
	if err != nil {
		panic(err)
	}
	for _, r := range rows {
		fmt.Printf("#%d ts=%d %s -> %s %s\n", r.Seq, r.Ts, r.From, r.To, r.Amount)
	}
}

func HistoryEvent(eventID string) {
	id, err := strconv.ParseUint(eventID, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("event id must be an integer. Error: %s", err))
	}
	ix := openIndex()
	defer ix.Close()
	rows, err := ix.Participations(id)
	if err != nil {
		panic(err)
	}
	for _, r := range rows {
		fmt.Printf("#%d ts=%d %s %s\n", r.Seq, r.Ts, r.Kind, r.Account)
	}
}

func HistoryProposal(proposalID string) {
	id, err := strconv.ParseUint(proposalID, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("proposal id must be an integer. Error: %s", err))
	}
	ix := openIndex()
	defer ix.Close()
	rows, err := ix.Proposals(id)
	if err != nil {
		panic(err)
	}
	for _, r := range rows {
		fmt.Printf("#%d ts=%d %s\n", r.Seq, r.Ts, r.Kind)
	}
}
