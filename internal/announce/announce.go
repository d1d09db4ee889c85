// Package announce prints the status lines shown when documentation
// generation is handed off to the main process.
package announce

import "io"

// Lines are the announcement messages, in the order they are printed.
var Lines = [...]string{
	"正在生成项目文档...",
	"文档将在主进程中生成...",
}

// Write writes each line followed by a newline. It stops at the first error.
func Write(w io.Writer) error {
	for _, line := range Lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}
