package http1

type parserState uint8

const (
	eRequestLine parserState = iota
	eHeaders
	eBody
	eChunkedBody
	eCompleted
	eError
)
