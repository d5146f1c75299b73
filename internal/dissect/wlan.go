package dissect

import (
	"capdissect/internal/models"
	"fmt"
	"strings"

	"github.com/google/gopacket/layers"
)

func radiotap(rt *layers.RadioTap) *models.Field {
	root := add(proto("radiotap", fmt.Sprintf("Radiotap Header v%d, Length %d", rt.Version, rt.Length)),
		uintField("radiotap.version", "Header revision", uint64(rt.Version), 1),
		uintField("radiotap.length", "Header length", uint64(rt.Length), 2),
		hexField("radiotap.present", "Present flags", uint64(rt.Present), 4),
	)
	if rt.Present.Channel() {
		add(root, uintField("radiotap.channel.freq", "Channel frequency", uint64(rt.ChannelFrequency), 2))
	}
	if rt.Present.DBMAntennaSignal() {
		add(root, field("radiotap.dbm_antsignal", "Antenna signal", fmt.Sprintf("%ddBm", rt.DBMAntennaSignal), []byte{byte(rt.DBMAntennaSignal)}))
	}
	return root
}

func dot11(d *layers.Dot11) *models.Field {
	root := add(proto("wlan", "IEEE 802.11 "+d.Type.String()),
		hexField("wlan.fc.type_subtype", "Type/Subtype", uint64(d.Type), 1),
		hexField("wlan.flags", "Flags", uint64(d.Flags), 1),
		uintField("wlan.duration", "Duration", uint64(d.DurationID), 2),
	)

	switch d.Type.MainType() {
	case layers.Dot11TypeMgmt:
		add(root,
			macField("wlan.da", "Destination address", d.Address1),
			macField("wlan.sa", "Source address", d.Address2),
			macField("wlan.bssid", "BSS Id", d.Address3),
		)
	case layers.Dot11TypeData:
		add(root,
			macField("wlan.ra", "Receiver address", d.Address1),
			macField("wlan.ta", "Transmitter address", d.Address2),
			macField("wlan.addr", "Address 3", d.Address3),
		)
		if d.Address4 != nil {
			add(root, macField("wlan.addr", "Address 4", d.Address4))
		}
	default:
		add(root, macField("wlan.ra", "Receiver address", d.Address1))
		if d.Address2 != nil {
			add(root, macField("wlan.ta", "Transmitter address", d.Address2))
		}
	}

	if d.Type.MainType() != layers.Dot11TypeCtrl {
		add(root,
			uintField("wlan.frag", "Fragment number", uint64(d.FragmentNumber), 1),
			uintField("wlan.seq", "Sequence number", uint64(d.SequenceNumber), 2),
		)
	}
	add(root, hexField("wlan.fcs", "Frame check sequence", uint64(d.Checksum), 4))
	return root
}

func beaconFixed(b *layers.Dot11MgmtBeacon) *models.Field {
	return add(text("Fixed parameters (12 bytes)"),
		hexField("wlan_mgt.fixed.timestamp", "Timestamp", b.Timestamp, 8),
		field("wlan_mgt.fixed.beacon", "Beacon Interval", fmt.Sprintf("%.6f [Seconds]", float64(b.Interval)*1024/1e6), beBytes(uint64(b.Interval), 2)),
		hexField("wlan_mgt.fixed.capabilities", "Capabilities Information", uint64(b.Flags), 2),
	)
}

// mgmt starts the management frame body root. Information elements decoded after it are
// collected under its tagged parameters.
func (r *renderer) mgmt(fixed *models.Field) *models.Field {
	root := proto("wlan_mgt", "IEEE 802.11 wireless LAN management frame")
	if fixed != nil {
		add(root, fixed)
	}
	r.tagged = &models.Field{Name: "wlan_mgt.tagged.all", DisplayName: "Tagged parameters"}
	return add(root, r.tagged)
}

func infoElement(ie *layers.Dot11InformationElement) *models.Field {
	interp := ieInterpretation(ie)
	tag := &models.Field{
		Name:        "wlan_mgt.tag",
		DisplayName: fmt.Sprintf("Tag: %s: %s", ie.ID, interp),
	}
	add(tag,
		field("wlan_mgt.tag.number", "Tag Number", fmt.Sprintf("%s (%d)", ie.ID, uint8(ie.ID)), []byte{uint8(ie.ID)}),
		uintField("wlan_mgt.tag.length", "Tag length", uint64(ie.Length), 1),
	)
	if len(ie.OUI) > 0 {
		add(tag, field("wlan_mgt.tag.oui", "OUI", fmt.Sprintf("%x", ie.OUI), append([]byte(nil), ie.OUI...)))
	}

	label := "Tag interpretation"
	if ie.ID == layers.Dot11InformationElementIDSSID {
		label = "SSID"
	}
	return add(tag, field("wlan_mgt.tag.interpretation", label, interp, append([]byte(nil), ie.Info...)))
}

func ieInterpretation(ie *layers.Dot11InformationElement) string {
	switch ie.ID {
	case layers.Dot11InformationElementIDSSID:
		if len(ie.Info) == 0 {
			return "Broadcast"
		}
		return string(ie.Info)
	case layers.Dot11InformationElementIDRates, layers.Dot11InformationElementIDESRates:
		rates := make([]string, 0, len(ie.Info))
		for _, b := range ie.Info {
			s := fmt.Sprintf("%g", float64(b&0x7f)/2)
			if b&0x80 != 0 {
				s += "(B)"
			}
			rates = append(rates, s)
		}
		return strings.Join(rates, " ") + " [Mbit/sec]"
	case layers.Dot11InformationElementIDDSSet:
		if len(ie.Info) == 1 {
			return fmt.Sprintf("Current Channel: %d", ie.Info[0])
		}
	}
	return fmt.Sprintf("%x", ie.Info)
}
