package chain

// countingWriter discards written bytes while counting them, used to compute
// SerializedSize without allocating the full encoding.
type countingWriter struct {
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += len(p)
	return len(p), nil
}
