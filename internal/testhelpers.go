package internal

// CreateTestTranscript creates a transcript with a short exchange and one
// file in each inventory
func CreateTestTranscript(id string) *Transcript {
	return &Transcript{
		SessionID: id,
		Messages: []Message{
			{Role: RoleUser, Text: "Trim [intro.mp4 00:05] to ten seconds"},
			{Role: RoleAgent, Text: "Done, saved as intro_trim.mp4"},
		},
		Assets:  []FileDescriptor{{Name: "intro.mp4", Size: 2048000, Kind: KindAsset}},
		Outputs: []FileDescriptor{{Name: "intro_trim.mp4", Size: 1024000, Modified: 1700000000000, Kind: KindOutput}},
	}
}

// CreateTestTranscriptWithMessages creates a transcript holding only messages
func CreateTestTranscriptWithMessages(id string, messages []Message) *Transcript {
	return &Transcript{
		SessionID: id,
		Messages:  messages,
	}
}
