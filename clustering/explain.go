package clustering

import "fmt"

// Meaning is the human-readable interpretation of a cluster id.
type Meaning struct {
	Name        string
	Description string
}

var meanings = [K]Meaning{
	{
		Name: "Fair price - steady service",
		Description: "Accessible fares that suit most passengers. Service quality is even with little variation, " +
			"and a fairly good Wilson score reflects satisfaction that holds over time. " +
			"Trips here give a good experience at a moderate cost.",
	},
	{
		Name: "High price - experience falls short",
		Description: "Fares sit above average while satisfaction and ratings are low and unstable. " +
			"A low Wilson score means real quality is uneven. The price does not reflect the service, " +
			"often because of peak demand, brand or a monopoly on the route.",
	},
	{
		Name: "Premium service - complete experience",
		Description: "Fares are in the upper group and come with good service. Satisfaction is stable and " +
			"trust is outstanding; a high Wilson score reflects broad agreement among reviewers. " +
			"Suited to passengers who care about comfort, safety and professionalism.",
	},
}

// Explain returns the meaning of a cluster id. Ids outside [0, K) are a
// programming error and panic.
func Explain(id int) Meaning {
	if id < 0 || id >= K {
		panic(fmt.Sprintf("clustering: unknown cluster id %d", id))
	}
	return meanings[id]
}
