package facerec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andresmejia3/faceenroll/internal/store"
	"github.com/andresmejia3/faceenroll/internal/types"
	"github.com/sirupsen/logrus"
)

// Enroller runs one interactive enrollment session.
type Enroller struct {
	Store   store.Store
	Capture *Capture
	In      io.Reader
	Out     io.Writer
	Log     *logrus.Entry
}

// Run prompts for a name, captures a descriptor and stores it. On any error
// no row is written.
func (e *Enroller) Run(ctx context.Context) (types.User, error) {
	name, err := PromptName(e.In, e.Out)
	if err != nil {
		return types.User{}, err
	}

	fmt.Fprintln(e.Out, "📷 Look at camera...")
	res, err := e.Capture.Run(ctx)
	if err != nil {
		return types.User{}, err
	}

	id, err := e.Store.AddUser(ctx, name, res.Embedding)
	if err != nil {
		return types.User{}, &StoreError{Op: "insert", Err: err}
	}

	if e.Log != nil {
		e.Log.WithFields(logrus.Fields{"id": id, "dims": len(res.Embedding), "faces": res.Faces}).Info("user enrolled")
	}
	return types.User{ID: id, Name: name, Embedding: res.Embedding}, nil
}

// PromptName writes the prompt and reads one line. The name is used verbatim,
// only the line terminator is removed.
func PromptName(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter user name: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoName
		}
		return "", fmt.Errorf("failed to read name: %w", err)
	}

	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}
