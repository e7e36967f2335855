package ftp

import "io"

// ProgressReader wraps an io.Reader and reports the running byte count
// to a callback after every read. Wrap an upload source with it to
// observe transfer progress:
//
//	pr := &ftp.ProgressReader{
//	    Reader: file,
//	    Callback: func(n int64) { fmt.Printf("uploaded %d bytes\n", n) },
//	}
//	err := client.Store("remote.txt", pr)
type ProgressReader struct {
	Reader   io.Reader
	Callback func(bytesTransferred int64)

	total int64
}

// Read implements io.Reader.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	pr.total += int64(n)
	if pr.Callback != nil && n > 0 {
		pr.Callback(pr.total)
	}
	return n, err
}

// ProgressWriter wraps an io.Writer and reports the running byte count
// to a callback after every write. Wrap a download sink with it to
// observe transfer progress.
type ProgressWriter struct {
	Writer   io.Writer
	Callback func(bytesTransferred int64)

	total int64
}

// Write implements io.Writer.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.total += int64(n)
	if pw.Callback != nil && n > 0 {
		pw.Callback(pw.total)
	}
	return n, err
}
