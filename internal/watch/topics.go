package watch

import "fmt"

// TopicType identifies a subscription topic family.
type TopicType string

const (
	TopicOrderbook TopicType = "orderbook"
	TopicTicker    TopicType = "tickers"
	TopicPosition  TopicType = "position"
	TopicOrder     TopicType = "order"
	TopicWallet    TopicType = "wallet"
)

const defaultBookDepth = 50

// BuildTopic renders the wire topic string for a topic type. symbol and
// depth are only used by the public market topics.
func BuildTopic(topicType TopicType, symbol string, depth int) string {
	switch topicType {
	case TopicOrderbook:
		if depth <= 0 {
			depth = defaultBookDepth
		}
		return fmt.Sprintf("orderbook.%d.%s", depth, symbol)
	case TopicTicker:
		return fmt.Sprintf("tickers.%s", symbol)
	default:
		return string(topicType)
	}
}

// IsPrivate reports whether the topic requires the authenticated stream.
func IsPrivate(topicType TopicType) bool {
	switch topicType {
	case TopicPosition, TopicOrder, TopicWallet:
		return true
	default:
		return false
	}
}
