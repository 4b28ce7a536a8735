// Package recognizer binds the dlib face models in-process through go-face.
// It needs the dlib C++ libraries and is only built with the dlib tag:
//
//	go build -tags dlib
package recognizer
