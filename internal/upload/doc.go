// Package upload hands a finished document to its destination.
//
// HTTPSink posts the document as a multipart form to a configured endpoint
// with a bearer token. FileSink copies it to a local path, which is what the
// crawl command uses when no upload is requested.
package upload
