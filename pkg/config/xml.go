package config

import (
	"encoding/xml"
)

// xmlWorkflow is the tree/attribute document:
//
//	<workflow name="import">
//	  <actor class="csv-input" name="reader">
//	    <property name="input-file">people.csv</property>
//	    <consumer name="writer"/>
//	  </actor>
//	</workflow>
//
// The type may be given as class or type.
type xmlWorkflow struct {
	XMLName     xml.Name   `xml:"workflow"`
	Name        string     `xml:"name,attr"`
	Description string     `xml:"description,attr"`
	Actors      []xmlActor `xml:"actor"`
	Links       []xmlLink  `xml:"link"`
}

type xmlActor struct {
	Class      string        `xml:"class,attr"`
	Type       string        `xml:"type,attr"`
	Name       string        `xml:"name,attr"`
	Properties []xmlProperty `xml:"property"`
	Providers  []xmlRef      `xml:"provider"`
	Consumers  []xmlRef      `xml:"consumer"`
}

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlRef struct {
	Name string `xml:"name,attr"`
}

type xmlLink struct {
	From string `xml:"from,attr"`
	To   string `xml:"to,attr"`
}

func parseXML(data []byte) (*Document, error) {
	var parsed xmlWorkflow
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	doc := &Document{
		Name:        parsed.Name,
		Description: parsed.Description,
		Actors:      make([]ActorDocument, 0, len(parsed.Actors)),
	}

	for _, a := range parsed.Actors {
		ad := ActorDocument{Type: a.Type, Name: a.Name}
		if ad.Type == "" {
			ad.Type = a.Class
		}
		for _, p := range a.Properties {
			ad.Properties = append(ad.Properties, PropertyDocument{Name: p.Name, Value: p.Value})
		}
		for _, r := range a.Providers {
			ad.Providers = append(ad.Providers, r.Name)
		}
		for _, r := range a.Consumers {
			ad.Consumers = append(ad.Consumers, r.Name)
		}
		doc.Actors = append(doc.Actors, ad)
	}

	for _, l := range parsed.Links {
		doc.Links = append(doc.Links, LinkDocument{From: l.From, To: l.To})
	}

	return doc, nil
}
