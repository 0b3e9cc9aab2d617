package token

import "fmt"

func Transfer(sender, to, amount string) {
	s := NewService(sender)
	if err := s.Client.Transfer(parseAddr(to), parseAmount(amount)); err != nil {
		panic(err)
	}
	fmt.Printf("transferred %s to %s\n", amount, to)
}

func Approve(sender, spender, amount string) {
	s := NewService(sender)
	if err := s.Client.Approve(parseAddr(spender), parseAmount(amount)); err != nil {
		panic(err)
	}
	fmt.Printf("approved %s for %s\n", amount, spender)
}

func Mint(sender, to, amount, reason string) {
	s := NewService(sender)
	if err := s.Client.Mint(parseAddr(to), parseAmount(amount), reason); err != nil {
		panic(err)
	}
	fmt.Printf("minted %s to %s\n", amount, to)
}

func Burn(sender, from, amount, reason string) {
	s := NewService(sender)
	if err := s.Client.Burn(parseAddr(from), parseAmount(amount), reason); err != nil {
		panic(err)
	}
	fmt.Printf("burned %s from %s\n", amount, from)
}

func Freeze(sender, account string) {
	s := NewService(sender)
	if err := s.Client.Freeze(parseAddr(account)); err != nil {
		panic(err)
	}
	fmt.Printf("froze %s\n", account)
}

func Unfreeze(sender, account string) {
	s := NewService(sender)
	if err := s.Client.Unfreeze(parseAddr(account)); err != nil {
		panic(err)
	}
	fmt.Printf("unfroze %s\n", account)
}

func SetPaused(sender string, paused bool) {
	s := NewService(sender)
	if err := s.Client.SetTokenPaused(paused); err != nil {
		panic(err)
	}
	fmt.Printf("token paused: %t\n", paused)
}

func Snapshot(sender string) {
	s := NewService(sender)
	id, err := s.Client.Snapshot()
	if err != nil {
		panic(err)
	}
	fmt.Printf("snapshot id: %d\n", id)
}
