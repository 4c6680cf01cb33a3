package grocery

import (
	"fmt"
	"html"
	"strings"
)

// Markdown renders the list as a markdown checklist, one heading per
// section.
func Markdown(list *List) string {
	var sb strings.Builder

	title := list.PlanName
	if title == "" {
		title = fmt.Sprintf("Plan %d", list.PlanID)
	}
	fmt.Fprintf(&sb, "# Grocery list: %s\n", title)
	if list.StoreName != "" {
		fmt.Fprintf(&sb, "\n_Store: %s_\n", list.StoreName)
	}

	if len(list.Sections) == 0 {
		sb.WriteString("\nNothing to buy.\n")
	}
	for _, section := range list.Sections {
		fmt.Fprintf(&sb, "\n## %s\n\n", section.Name)
		for _, item := range section.Items {
			if amount := item.Display(); amount != "" {
				fmt.Fprintf(&sb, "- [ ] %s: %s\n", item.Name, amount)
			} else {
				fmt.Fprintf(&sb, "- [ ] %s\n", item.Name)
			}
		}
	}

	if len(list.Warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, w := range list.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w.Message)
		}
	}
	return sb.String()
}

// PlainText renders the list for chat messages without markup.
func PlainText(list *List) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 %s", list.PlanName)
	if list.StoreName != "" {
		fmt.Fprintf(&sb, " @ %s", list.StoreName)
	}
	sb.WriteString("\n")

	for _, section := range list.Sections {
		fmt.Fprintf(&sb, "\n%s\n", strings.ToUpper(section.Name))
		for _, item := range section.Items {
			if amount := item.Display(); amount != "" {
				fmt.Fprintf(&sb, "• %s: %s\n", item.Name, amount)
			} else {
				fmt.Fprintf(&sb, "• %s\n", item.Name)
			}
		}
	}
	if n := len(list.Warnings); n > 0 {
		fmt.Fprintf(&sb, "\n⚠️ %d warning(s) while building this list.\n", n)
	}
	return sb.String()
}

// HTML renders the list as a blog post body.
func HTML(list *List) string {
	var sb strings.Builder
	if list.StoreName != "" {
		fmt.Fprintf(&sb, "<p><i>Store: %s</i></p>", html.EscapeString(list.StoreName))
	}
	for _, section := range list.Sections {
		fmt.Fprintf(&sb, "<h2>%s</h2><ul>", html.EscapeString(section.Name))
		for _, item := range section.Items {
			text := item.Name
			if amount := item.Display(); amount != "" {
				text += ": " + amount
			}
			fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(text))
		}
		sb.WriteString("</ul>")
	}
	return sb.String()
}
