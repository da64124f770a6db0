package cli

import "whobible-live/internal/domain"

// samplePool provides a small built-in people pool so the server runs
// without a database; swap in the Postgres loader for a real question bank.
func samplePool() []domain.Person {
	return []domain.Person{
		{
			Name:          "Moses",
			Age:           120,
			Mother:        "Jochebed",
			Occupation:    "Shepherd",
			NotableDeeds:  []string{"Parted the Red Sea"},
			NotableEvents: []string{"Received the Ten Commandments on Mount Sinai"},
			Verses:        []string{"Exodus 14:21"},
		},
		{
			Name:          "David",
			Age:           70,
			Mother:        "Nitzevet",
			Occupation:    "King",
			NotableDeeds:  []string{"Defeated Goliath with a sling"},
			NotableEvents: []string{"Was anointed king of Israel by Samuel"},
			Verses:        []string{"1 Samuel 17:49"},
		},
		{
			Name:          "Noah",
			Age:           950,
			Occupation:    "Ark builder",
			NotableDeeds:  []string{"Built the ark"},
			NotableEvents: []string{"Survived the great flood"},
			Verses:        []string{"Genesis 6:14"},
		},
		{
			Name:          "Samuel",
			Age:           98,
			Mother:        "Hannah",
			Occupation:    "Prophet",
			NotableDeeds:  []string{"Anointed the first kings of Israel"},
			NotableEvents: []string{"Heard the voice of God as a boy"},
			Verses:        []string{"1 Samuel 3:10"},
		},
		{
			Name:          "Isaac",
			Age:           180,
			Mother:        "Sarah",
			Occupation:    "Herdsman",
			NotableDeeds:  []string{"Reopened the wells of Abraham"},
			NotableEvents: []string{"Was offered as a sacrifice by Abraham"},
			Verses:        []string{"Genesis 22:9"},
		},
		{
			Name:          "Solomon",
			Age:           80,
			Mother:        "Bathsheba",
			Occupation:    "King",
			NotableDeeds:  []string{"Built the first temple in Jerusalem"},
			NotableEvents: []string{"Judged between two mothers claiming one child"},
			Verses:        []string{"1 Kings 3:25"},
		},
		{
			Name:          "Joseph",
			Age:           110,
			Mother:        "Rachel",
			Occupation:    "Governor of Egypt",
			NotableDeeds:  []string{"Interpreted Pharaoh's dreams"},
			NotableEvents: []string{"Was sold into slavery by his brothers"},
			Verses:        []string{"Genesis 41:25"},
		},
		{
			Name:          "Elijah",
			Mother:        "",
			Occupation:    "Prophet",
			NotableDeeds:  []string{"Called down fire on Mount Carmel"},
			NotableEvents: []string{"Was taken to heaven in a whirlwind"},
			Verses:        []string{"2 Kings 2:11"},
		},
	}
}
