package journal

// DemoGames returns the sample library written on first start when demo
// data is enabled.
func DemoGames() []Game {
	return []Game{
		{
			ID:        1,
			Title:     "The Legend of Zelda: Tears of the Kingdom",
			LastEntry: "2025-07-03",
			Entries: []Entry{
				{
					ID:     1,
					Date:   "2025-07-03",
					Text:   "Found a new shrine near the central tower. The puzzle involved moving water with the ultrahand ability. Really clever design!",
					Images: []Photo{},
				},
				{
					ID:     2,
					Date:   "2025-07-02",
					Text:   "Defeated my first Lynel today! The strategy was to use perfect dodges and then attack during the slow-mo. Took about 15 tries but finally got it.",
					Images: []Photo{},
				},
			},
		},
		{
			ID:        2,
			Title:     "Spider-Man 2",
			LastEntry: "2025-07-01",
			Entries: []Entry{
				{
					ID:     3,
					Date:   "2025-07-01",
					Text:   "The web-swinging mechanics feel amazing. The new web wings add a whole new dimension to traversal. Brooklyn Bridge area is beautifully detailed.",
					Images: []Photo{},
				},
			},
		},
	}
}
