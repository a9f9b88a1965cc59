package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/syllabus/core"
)

const (
	topicPrefix         = "topic"
	topicIDSeq          = "topicseq"
	sessionPrefix       = "sess"
	sessionThreadPrefix = "sessthr"
	sessionIDSeq        = "sessseq"
	subtopicPrefix      = "subt"
	subtopicOrderPrefix = "subtord"
	subtopicIDSeq       = "subtseq"
	chunkPrefix         = "chunk"
	checkpointPrefix    = "ckpt"
	checkpointIDPrefix  = "ckptid"
	checkpointSeq       = "ckptseq"
	messagePrefix       = "msg"
	messageIDSeq        = "msgseq"
)

// makeTopicKey generates a key for a topic by ID.
func makeTopicKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", topicPrefix, id))
}

// makeSessionKey generates a key for a session by ID.
func makeSessionKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", sessionPrefix, id))
}

// makeSessionThreadKey generates the thread index key of a session.
func makeSessionThreadKey(threadID string) []byte {
	return []byte(sessionThreadPrefix + ":" + threadID)
}

// makeSubtopicKey generates a key for a subtopic by ID.
func makeSubtopicKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", subtopicPrefix, id))
}

// makeSubtopicOrderKey generates a composite key for the (topic, order) index.
// Format: prefix:topicID:order
func makeSubtopicOrderKey(topicID core.ID, order int) []byte {
	buf := makePartialSubtopicOrderKey(topicID)
	// Write in BigEndian order so lexicographic sort works correctly
	return binary.BigEndian.AppendUint64(buf, uint64(order))
}

// makePartialSubtopicOrderKey generates a partial key for listing a topic's subtopics.
// Format: prefix:topicID
func makePartialSubtopicOrderKey(topicID core.ID) []byte {
	buf := make([]byte, 0, len(subtopicOrderPrefix)+1+16)
	buf = append(buf, subtopicOrderPrefix+":"...)
	return binary.BigEndian.AppendUint64(buf, uint64(topicID))
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:subtopicID:position
func makeChunkKey(subtopicID core.ID, position int) []byte {
	buf := makePartialChunkKey(subtopicID)
	return binary.BigEndian.AppendUint64(buf, uint64(position))
}

// makePartialChunkKey generates a partial key for a subtopic's chunks.
// Format: prefix:subtopicID
func makePartialChunkKey(subtopicID core.ID) []byte {
	buf := make([]byte, 0, len(chunkPrefix)+1+16)
	buf = append(buf, chunkPrefix+":"...)
	return binary.BigEndian.AppendUint64(buf, uint64(subtopicID))
}

// makePartialCheckpointKey generates the key prefix of a thread's checkpoints.
// Format: prefix:threadID\x00
func makePartialCheckpointKey(threadID string) []byte {
	buf := make([]byte, 0, len(checkpointPrefix)+len(threadID)+2+16)
	buf = append(buf, checkpointPrefix+":"...)
	buf = append(buf, threadID...)
	return append(buf, 0)
}

// makeCheckpointKey generates a key that sorts a thread's checkpoints by
// creation time, with a sequence number breaking ties.
// Format: prefix:threadID\x00timestamp:seq
func makeCheckpointKey(threadID string, createdAt time.Time, seq uint64) []byte {
	buf := makePartialCheckpointKey(threadID)
	buf = binary.BigEndian.AppendUint64(buf, uint64(createdAt.UnixMicro()))
	return binary.BigEndian.AppendUint64(buf, seq)
}

// makeCheckpointIDKey generates the index key mapping a checkpoint ID to its primary key.
func makeCheckpointIDKey(threadID, checkpointID string) []byte {
	buf := make([]byte, 0, len(checkpointIDPrefix)+len(threadID)+len(checkpointID)+2)
	buf = append(buf, checkpointIDPrefix+":"...)
	buf = append(buf, threadID...)
	buf = append(buf, 0)
	return append(buf, checkpointID...)
}

// makePartialCheckpointIDKey generates the index key prefix of a thread.
func makePartialCheckpointIDKey(threadID string) []byte {
	return makeCheckpointIDKey(threadID, "")
}

// makeMessageKey generates a composite key for a message.
// Format: prefix:sessionID:messageID
func makeMessageKey(sessionID, messageID core.ID) []byte {
	buf := makePartialMessageKey(sessionID)
	return binary.BigEndian.AppendUint64(buf, uint64(messageID))
}

// makePartialMessageKey generates a partial key for a session's messages.
func makePartialMessageKey(sessionID core.ID) []byte {
	buf := make([]byte, 0, len(messagePrefix)+1+16)
	buf = append(buf, messagePrefix+":"...)
	return binary.BigEndian.AppendUint64(buf, uint64(sessionID))
}
