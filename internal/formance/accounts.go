package formance

import (
	"fmt"

	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/google/uuid"
)

// Account naming shared by every posting the mirror writes.
const (
	PlayerAccountPrefix = "player"
	GameAccountPrefix   = "game"
	WorldAccount        = "world"

	WalletSuffix = "wallet"
	PotSuffix    = "pot"
)

// PlayerWalletAccount returns the main wallet account name for a user
func PlayerWalletAccount(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", PlayerAccountPrefix, userID.String(), WalletSuffix)
}

// GamePotAccount returns the pot account holding a game's entry fees and bets.
func GamePotAccount(gameID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", GameAccountPrefix, gameID.String(), PotSuffix)
}

// counterparty is the account on the other side of a wallet movement. Movements without a game
// session, such as deposits, settle against world.
func counterparty(tx models.WalletTransaction) string {
	if tx.SessionID == nil {
		return WorldAccount
	}
	return GamePotAccount(*tx.SessionID)
}

// PostingsFor translates one local ledger row into its double-entry posting.
func PostingsFor(tx models.WalletTransaction, asset string) []PostingSimple {
	wallet := PlayerWalletAccount(tx.UserID)
	other := counterparty(tx)

	posting := PostingSimple{Amount: tx.Amount, Asset: asset}
	switch tx.Type {
	case models.WalletTransactionDebit:
		posting.Source, posting.Destination = wallet, other
	default:
		posting.Source, posting.Destination = other, wallet
	}
	return []PostingSimple{posting}
}
