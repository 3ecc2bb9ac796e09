// Package transport builds the HTTP clients used to fetch pages.
//
// Clients connect directly by default, or through a SOCKS5 proxy when one is
// configured. Every client carries a cookie jar and a bounded redirect policy,
// and can inject per-site cookies and headers into every request, including
// redirects.
//
// Design decision: Response decompression is turned off in the transport.
// The fetch package advertises gzip, deflate and br itself and decodes the
// body after the size limit is applied, so the limit counts wire bytes.
package transport
