package primitive

type Regex struct {
	Pattern string
	Options string
}
