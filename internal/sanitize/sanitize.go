// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sanitize strips quoted replies, forwarded blocks, and
// signature boilerplate from email HTML so only the new content of a
// message survives into the timeline.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// signaturePattern matches the opening line of common signature blocks.
// The Greek variant shows up in this deployment's mail traffic.
var signaturePattern = regexp.MustCompile(`(?i)^\s*(Με εκτίμηση|best regards|kind regards|regards|thanks|cheers)`)

// StripQuoted removes quoted reply content from an email HTML body:
// inline cid images, Outlook reply/forward separators, blockquotes,
// everything after the first horizontal rule, and known signature
// blocks. Input that does not parse is returned unchanged.
func StripQuoted(input string) string {
	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return input
	}

	removeMatching(doc, func(n *html.Node) bool {
		if n.Data == "img" && strings.HasPrefix(attr(n, "src"), "cid:") {
			return true
		}
		id := attr(n, "id")
		if strings.HasPrefix(id, "divRplyFwdMsg") || strings.HasPrefix(id, "x_divRplyFwdMsg") ||
			strings.Contains(id, "ms-outlook-mobile-body-separator-line") {
			return true
		}
		return n.Data == "blockquote"
	})

	if hr := firstElement(doc, "hr"); hr != nil {
		removeFollowingSiblings(hr)
		hr.Parent.RemoveChild(hr)
	}

	removeMatching(doc, func(n *html.Node) bool {
		return strings.HasPrefix(attr(n, "class"), "MsoNormalTable")
	})

	trimSignatures(doc)

	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return input
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// removeMatching removes every element node the predicate selects.
// Subtrees of removed nodes are not descended into.
func removeMatching(n *html.Node, match func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && match(c) {
			n.RemoveChild(c)
		} else {
			removeMatching(c, match)
		}
		c = next
	}
}

// firstElement returns the first element with the given tag in document
// order, or nil.
func firstElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func removeFollowingSiblings(n *html.Node) {
	for sib := n.NextSibling; sib != nil; {
		next := sib.NextSibling
		n.Parent.RemoveChild(sib)
		sib = next
	}
}

// trimSignatures removes signature paragraphs (Mso* styled elements
// whose text opens with a sign-off) and everything after them.
func trimSignatures(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && strings.Contains(attr(c, "class"), "MsoNormal") &&
			signaturePattern.MatchString(strings.TrimSpace(nodeText(c))) {
			removeFollowingSiblings(c)
			n.RemoveChild(c)
			return
		}
		trimSignatures(c)
		c = next
	}
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}
