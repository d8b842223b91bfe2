package domain

import (
	"encoding/json"
	"time"
)

// Account is keyed by the upstream's immutable player id (PUUID). The riot id
// is only the current display name and may change.
type Account struct {
	ID        string    `json:"id"`
	GameName  string    `json:"gameName"`
	TagLine   string    `json:"tagLine"`
	Region    string    `json:"region"`
	PUUID     string    `json:"externalPlayerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Summoner struct {
	ProfileIconID int    `json:"profileIconId"`
	Level         int64  `json:"level"`
	InternalID    string `json:"internalId"`
}

type RankedEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	HotStreak    bool   `json:"hotStreak"`
}

type ChampionMastery struct {
	ChampionID     int   `json:"championId"`
	ChampionLevel  int   `json:"championLevel"`
	ChampionPoints int   `json:"championPoints"`
	LastPlayTime   int64 `json:"lastPlayTime"`
}

// MatchDetail is content addressed by MatchID and shared across accounts.
type MatchDetail struct {
	MatchID  string          `json:"matchId"`
	Platform string          `json:"platform"`
	Payload  json.RawMessage `json:"payload"`
}

type LiveGameParticipant struct {
	PUUID      string `json:"puuid"`
	ChampionID int64  `json:"championId"`
	TeamID     int64  `json:"teamId"`
}

type LiveGame struct {
	GameID        int64                 `json:"gameId"`
	GameMode      string                `json:"gameMode"`
	GameQueueID   int64                 `json:"gameQueueConfigId"`
	GameStartTime int64                 `json:"gameStartTime"`
	Participants  []LiveGameParticipant `json:"participants"`
}

// ProfileSnapshot is replaced wholesale on every successful refresh.
// MatchDetails follows the order of MatchIDs with failed slots removed.
type ProfileSnapshot struct {
	AccountID       string            `json:"accountId"`
	Summoner        Summoner          `json:"summoner"`
	RankedEntries   []RankedEntry     `json:"rankedEntries"`
	ChampionMastery []ChampionMastery `json:"championMastery"`
	MatchIDs        []string          `json:"matchIds"`
	MatchDetails    []MatchDetail     `json:"matchDetails"`
	LiveGame        *LiveGame         `json:"liveGame"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}
