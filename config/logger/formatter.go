// Package logger configures logrus and implements a formatter that prefixes
// log messages with the component name.
package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ComponentField is the log field that NamespaceFormatter turns into a prefix
const ComponentField = "component"

// NamespaceFormatter is a logrus formatter that adds the 'component' field
// to a log prefix for nicer formatted text output.
type NamespaceFormatter struct {
	Parent logrus.Formatter
}

// Format implements logrus.Formatter
func (f *NamespaceFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if ns, exists := entry.Data[ComponentField]; exists {
		entry.Message = fmt.Sprintf("[%-8v] %s", ns, entry.Message)
	}
	return f.Parent.Format(entry)
}
