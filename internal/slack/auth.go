package slack

// Workspace holds the credential for one installed Slack workspace.
type Workspace struct {
	Name     string `json:"name"`
	BotToken string `json:"bot_token"`
	TeamID   string `json:"team_id"`
}

// AuthGroup resolves a workspace credential by team id. It is an immutable
// snapshot: the registry builds a fresh group per refresh and swaps it
// wholesale.
type AuthGroup struct {
	byTeam map[string]Workspace
}

// NewAuthGroup builds a group from the given workspaces. Entries missing a
// team id or bot token are dropped.
func NewAuthGroup(workspaces []Workspace) *AuthGroup {
	byTeam := make(map[string]Workspace, len(workspaces))
	for _, ws := range workspaces {
		if ws.TeamID == "" || ws.BotToken == "" {
			continue
		}
		byTeam[ws.TeamID] = ws
	}
	return &AuthGroup{byTeam: byTeam}
}

// BotToken resolves the bot token for a workspace. Unknown team ids report an
// explicit miss.
func (g *AuthGroup) BotToken(teamID string) (string, bool) {
	ws, ok := g.byTeam[teamID]
	if !ok {
		return "", false
	}
	return ws.BotToken, true
}

// Len reports the number of recognized workspaces.
func (g *AuthGroup) Len() int {
	return len(g.byTeam)
}
