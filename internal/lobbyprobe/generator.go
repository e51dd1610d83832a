package lobbyprobe

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

// Random account ids fall in [steamIDBase, steamIDBase+steamIDRange).
const (
	steamIDBase  = 76561197960265728
	steamIDRange = 1 << 32
)

// randSource feeds account id generation.
var randSource io.Reader = rand.Reader //nolint:gochecknoglobals // replaced in tests

// generateLobbies returns cfg.Lobbies lobbies, all equal to cfg.Identities
// when set and otherwise filled with random account ids.
func generateLobbies(cfg *Config) ([]Lobby, error) {
	lobbies := make([]Lobby, cfg.Lobbies)
	for i := range lobbies {
		lobbies[i].ID = uuid.NewString()
		if len(cfg.Identities) > 0 {
			lobbies[i].Usernames = append([]string(nil), cfg.Identities...)
			continue
		}
		lobbies[i].Usernames = make([]string, cfg.LobbySize)
		for j := range lobbies[i].Usernames {
			id, err := randomSteamID()
			if err != nil {
				return nil, err
			}
			lobbies[i].Usernames[j] = id
		}
	}
	return lobbies, nil
}

func randomSteamID() (string, error) {
	n, err := rand.Int(randSource, big.NewInt(steamIDRange))
	if err != nil {
		return "", fmt.Errorf("generate account id: %w", err)
	}
	return strconv.FormatInt(steamIDBase+n.Int64(), 10), nil
}
