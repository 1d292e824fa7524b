package inspector

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"events_widget/application/locator"
	"events_widget/domain/entities"

	"github.com/sirupsen/logrus"
)

// Snapshot builds a debug dump of the page. Every probe runs on its own:
// a failed probe leaves its field at zero, lands in ProbeErrors, and does not stop the rest.
func (i *Inspector) Snapshot() entities.DebugSnapshot {
	snap := entities.DebugSnapshot{
		AllTextElements: []string{},
		SelectorDetails: []entities.SelectorDetail{},
		ProbeErrors:     map[string]string{},
	}
	probe := func(name string, err error) {
		if err != nil {
			snap.ProbeErrors[name] = err.Error()
		}
	}

	controls := i.resolver.Resolve(entities.RoleGenericControl)
	selectors := controls.Count()
	probe("selectors_found", selectors.Err())
	snap.SelectorsFound = selectors.Value

	buttons := i.resolver.Resolve(entities.RoleButton)
	buttonCount := buttons.Count()
	probe("buttons_found", buttonCount.Err())
	snap.ButtonsFound = buttonCount.Value

	inputs := i.resolver.Resolve(entities.RoleInput).Count()
	probe("inputs_found", inputs.Err())
	snap.InputsFound = inputs.Value

	title := i.resolver.Title()
	probe("page_title", title.Err())
	snap.PageTitle = title.Value

	url := i.resolver.URL()
	probe("page_url", url.Err())
	snap.PageURL = url.Value

	body := i.resolver.Resolve(entities.RoleBody).First().TextContent()
	probe("body_text_length", body.Err())
	snap.BodyTextLength = utf8.RuneCountInString(body.Value)

	for idx := 0; idx < min(selectors.Value, maxControls); idx++ {
		snap.SelectorDetails = append(snap.SelectorDetails, selectorDetail(controls.Nth(idx), idx))
	}

	for idx := 0; idx < min(buttonCount.Value, maxButtonTexts); idx++ {
		text := buttons.Nth(idx).TextContent()
		probe(fmt.Sprintf("button_%d", idx), text.Err())
		if t := strings.TrimSpace(text.Value); t != "" {
			snap.AllTextElements = append(snap.AllTextElements, "button: "+t)
		}
	}

	preview := i.resolver.Resolve(entities.RolePreviewKeyword).Count()
	probe("preview_elements_count", preview.Err())
	snap.PreviewElementsCount = preview.Value

	snap.ThemeOptionsFound = len(i.ThemeOptions())
	snap.CountryOptionsFound = len(i.CountryOptions())

	if len(snap.ProbeErrors) > 0 {
		i.logger.WithFields(logrus.Fields{
			"failed_probes": len(snap.ProbeErrors),
		}).Debug("snapshot taken with failed probes")
	}

	return snap
}

func selectorDetail(control locator.Group, index int) entities.SelectorDetail {
	detail := entities.SelectorDetail{Index: index, SampleOptions: []entities.OptionEntry{}}
	fail := func(err error) {
		if err != nil && detail.Error == "" {
			detail.Error = err.Error()
		}
	}

	tag := control.TagName()
	fail(tag.Err())
	class := control.Attribute("class")
	fail(class.Err())
	id := control.Attribute("id")
	fail(id.Err())
	detail.Element = entities.ElementInfo{TagName: tag.Value, ClassName: class.Value, ID: id.Value}

	options := control.Options()
	count := options.Count()
	fail(count.Err())
	detail.OptionsCount = count.Value

	for j := 0; j < min(count.Value, maxSampleOptions); j++ {
		option := options.Nth(j)
		text := option.TextContent()
		value := option.Attribute("value")
		if !text.OK() || !value.OK() {
			continue
		}
		detail.SampleOptions = append(detail.SampleOptions, entities.OptionEntry{
			Text:  truncate(strings.TrimSpace(text.Value), sampleTextLimit),
			Value: truncate(value.Value, sampleTextLimit),
		})
	}

	return detail
}
