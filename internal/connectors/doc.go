// Package connectors holds sources that feed documents into a conversation
// without an explicit upload. The filesystem connector watches a directory.
package connectors
