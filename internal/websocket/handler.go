package websocket

// ServeWs runs the pumps for an already-authenticated client. The write
// pump gets its own goroutine; the read pump keeps the handler goroutine
// so the connection stays hijacked until disconnect.
func ServeWs(client *Client) {
	go client.writePump()
	client.readPump()
}
