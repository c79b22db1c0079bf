package nats

import (
	"strings"
)

// ToNATSSubject maps an MQTT topic onto the subject the NATS MQTT gateway
// uses for it, so bridge traffic interoperates with MQTT clients connected
// through the gateway. Levels become tokens ("/" to "."), a literal "." is
// written as "//", and a leading "/" becomes "/.".
func ToNATSSubject(topic string) string {
	var b strings.Builder
	b.Grow(len(topic) + 2)

	for i := 0; i < len(topic); i++ {
		switch c := topic[i]; c {
		case '/':
			if i == 0 {
				b.WriteString("/.")
			} else {
				b.WriteByte('.')
			}
		case '.':
			b.WriteString("//")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ToMQTTTopic reverses ToNATSSubject.
func ToMQTTTopic(subject string) string {
	var b strings.Builder
	b.Grow(len(subject))

	i := 0
	if strings.HasPrefix(subject, "/.") {
		b.WriteByte('/')
		i = 2
	}
	for ; i < len(subject); i++ {
		switch c := subject[i]; {
		case c == '/' && i+1 < len(subject) && subject[i+1] == '/':
			b.WriteByte('.')
			i++
		case c == '.':
			b.WriteByte('/')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
