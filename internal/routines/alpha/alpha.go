// Package alpha bundles the first family of shipped routines: the nightly
// letter to tomorrow, the rolling today-so-far summary, and the three-breath
// night session. Each descriptor keeps its prompt text and write-back logic
// next to the keys and expiries it depends on.
package alpha

// Clock and date layouts shared by the whole family: "9:45 PM" and
// "Monday, January 2". Prompts always spell time out this way so the agent
// sees the same format across routines.
const (
	clockLayout = "3:04 PM"
	dateLayout  = "Monday, January 2"
)
