// Package game implements blackjack hand scoring and round resolution.
//
// Everything here is pure: functions take hands and players by value and
// return new values, so the package can be used from any goroutine
// without locking.
//
// # Scoring
//
// Score sums card face values (face cards ten, aces eleven) and, when the
// total busts and the hand holds at least one ace, subtracts ten once:
//
//	game.Score(deck.MustParseCards("AsKh"))   // 21
//	game.Score(deck.MustParseCards("AsKh5d")) // 16
//
// # Resolution
//
// Resolve compares a player's score with the dealer's and yields an
// EndState. ApplyPayout settles the player's chips for that EndState:
//
//	state := game.Resolve(player.HandValue, dealer.HandValue, game.IsBlackjack(player))
//	player = game.ApplyPayout(player, state)
package game
